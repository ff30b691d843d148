package classifier

import "strings"

// Instruction templates. {text} and {lang} are substituted in a single pass, so
// braces or format verbs inside a comment are passed through untouched.

const sentimentPrompt = `Classifique o sentimento predominante expresso no comentário abaixo,
considerando que se trata de um comentário sobre uma música.
Avalie o tom geral da mensagem, a intenção emocional do autor e o impacto implícito,
incluindo possíveis indicações dadas por emojis ou expressões afetivas.

Escolha APENAS uma das três opções:
- positivo   (elogios, carinho, satisfação, emoção boa, nostalgia afetiva)
- negativo   (críticas, frustração, incômodo, rejeição, emoção ruim)
- neutro     (informativo, ambíguo ou sem carga emocional clara)

Comentário:
{text}

Regra: responda APENAS com uma das palavras acima, sem explicações adicionais.`

const emotionPrompt = `Classifique a emoção dominante expressa no comentário abaixo.
Considere o contexto de comentários sobre músicas, incluindo reações à melodia,
letra, voz, memória afetiva, nostalgia e sentimentos sugeridos por emojis
já convertidos em texto.

A resposta deve ser EXATAMENTE uma das emoções da lista principal:

alegria
amor
nostalgia
saudade
tristeza
melancolia
raiva
surpresa
inspiração
reflexão
neutro

Regras obrigatórias:
- escolha somente UMA palavra da lista;
- não use frases, justificativas ou variações;
- não invente emoções fora da lista.

Comentário:
{text}

Resposta:`

const keywordsPrompt = `Extraia entre **5 e 10 palavras-chave realmente significativas** do comentário abaixo.

O objetivo é identificar elementos centrais do comentário, considerando que ele trata de uma música. Portanto, priorize palavras relacionadas a:

- emoções (ex: nostalgia, alegria, tristeza)
- temas mencionados (ex: saudade, lembrança, superação)
- experiência pessoal (ex: infância, momento, vida)
- elementos musicais (ex: melodia, voz, letra, ritmo, guitarra)
- apreciação ou crítica (ex: incrível, poderoso, marcante)
- impacto afetivo ou sensorial (ex: arrepio, energia, vibe)

============================================================
REGRAS OBRIGATÓRIAS (SIGA À RISCA):
============================================================

1) Não extraia palavras genéricas demais
(ex.: música, vídeo, coisa, muito, bom, legal, aí).

2) NÃO incluir:
- artigos, pronomes ou conectivos (o, a, que, de, com…)
- emojis
- números
- repetição da mesma palavra
- trechos longos ou frases inteiras
- palavras sem valor semântico real

3) Extraia apenas palavras isoladas (1 palavra cada),
sempre no **singular**, sem hashtags.

4) As palavras-chave devem capturar O ESSENCIAL do comentário:
— emoções centrais
— temas mencionados
— experiência afetiva
— elementos musicais

5) Responda SOMENTE com as palavras-chave,
separadas por vírgula, sem comentários extras.

============================================================
Comentário:
{text}

Responda SOMENTE com as palavras-chave (5 a 10 termos):`

const summaryPrompt = `Gere um resumo claro, objetivo e bem estruturado sobre o conjunto de comentários abaixo,
considerando especificamente o contexto de comentários sobre músicas.
Leve em conta que usuários costumam expressar emoções intensas, memórias pessoais,
sensações despertadas pela melodia ou pela letra, identificação com o artista,
e reações afetivas típicas desse ambiente.

Sua análise deve identificar:

- principais opiniões e percepções dos usuários sobre a música, letra, melodia, artista ou impacto emocional;
- emoções predominantes e padrões emocionais recorrentes (ex.: nostalgia, saudade, alegria, comoção);
- tendências gerais de sentimento (positivo, negativo ou neutro) relacionadas à experiência musical;
- temas centrais mencionados, como lembranças, relacionamentos, fases da vida, performance do artista, qualidade da produção ou significado pessoal;
- contrastes relevantes entre grupos de comentários (ex.: fãs antigos vs. novos ouvintes, experiências pessoais diferentes).

Use linguagem direta, síntese precisa e foco nas informações realmente relevantes.

Texto analisado:
{text}

Retorne UM ÚNICO parágrafo de até 10 linhas, sem listas e evitando repetições.`

const contextPrompt = `Classifique o COMPORTAMENTO do comentário em relação à música do vídeo.

A classificação deve ser EXCLUSIVA — escolha apenas UMA opção — e considerar o foco principal do que a pessoa escreveu.

======================================================
CATEGORIAS PERMITIDAS (escolha SOMENTE uma):
======================================================

1) **sobre_a_musica**
Quando o comentário fala diretamente sobre:
- a música, letra, melodia, ritmo, harmonia;
- a performance do artista;
- opinião, crítica ou elogio sobre o som;
- produção musical, qualidade do áudio, clipe.

Exemplos:
- "Essa música é perfeita!"
- "O refrão é muito forte."
- "O vocal dele tá incrível."

2) **experiencia_pessoal**
Quando o comentário relata uma memória, história ou situação da vida relacionada à música.

Exemplos:
- "Essa música marcou minha adolescência."
- "Ouvi essa música no meu casamento."
- "Me lembra meu pai que já faleceu."

3) **trecho_de_letra**
Quando o comentário contém um trecho da música, mesmo que modificado levemente.
Não importa se a pessoa não cita que é letra — identifique pelo conteúdo.

Exemplos:
- "I've given up, I'm sick of feeling!"
- "Walk on home boy!"
- "Só as antigas vão lembrar…"

4) **off_topic**
Quando o comentário NÃO tem relação com a música.
Inclui:
- memes aleatórios;
- política, religião, futebol;
- conversa paralela com outros usuários;
- perguntas nada a ver;
- emojis sem contexto;
- spam.

Exemplos:
- "Quem mais veio por causa do TikTok?"
- "Brasil 7x1 Alemanha."
- "Alguém sabe qual é o nome do cachorro?"

======================================================
REGRAS OBRIGATÓRIAS
======================================================

- Escolha APENAS UMA opção.
- NÃO explique sua escolha, NÃO adicione texto extra.
- Se houver mistura de elementos, escolha o TEMA PRINCIPAL do comentário.
- Se o comentário tiver letra + opinião → classifique como **trecho_de_letra**.
- Se o comentário for só emojis:
    - Se forem claramente emocionais → classifique como **sobre_a_musica**.
    - Se forem aleatórios → **off_topic**.

======================================================
Comentário a classificar:
{text}

Responda SOMENTE com uma das opções:
sobre_a_musica, experiencia_pessoal, trecho_de_letra, off_topic`

const languagePrompt = `Identifique o idioma principal do comentário abaixo.

IMPORTANTE:
- Considere que muitos comentários de YouTube sobre músicas podem conter:
    * trechos da letra,
    * nomes de artistas,
    * palavras repetidas,
    * expressões informais,
    * gírias multilíngues,
    * emojis.
- Nesses casos, identifique o idioma predominante da frase como um todo.
- Se houver mistura, escolha o idioma da maior parte do texto.

Responda SOMENTE com o código ISO-639-1:
- pt, en, es, fr, de, it, etc.

Comentário:
{text}

Responda exclusivamente com o código do idioma, sem frases adicionais.`

const translatePrompt = `Você receberá um comentário de YouTube sobre uma música, junto com o idioma detectado.

Se o idioma for "pt":
    - NÃO traduza.
    - NÃO reescreva.
    - Retorne o texto exatamente como está.

Caso contrário:
    - Traduza o comentário para o português brasileiro.
    - Mantenha o sentido original, o tom emocional e o estilo do autor.
    - Preserve:
        * gírias
        * expressões culturais
        * nomes próprios
        * termos musicais (chorus, beat, flow, vocals, harmony)
        * trechos de letra de música (sem adaptar)
    - Se houver palavras de vários idiomas no mesmo comentário,
    traduza apenas o que for do idioma detectado como predominante.

Idioma detectado: {lang}
Comentário original:
{text}

Responda somente com o texto final traduzido ou preservado.`

func render(template, text string) string {
	return strings.NewReplacer("{text}", text).Replace(template)
}

func renderTranslate(text, lang string) string {
	return strings.NewReplacer("{lang}", lang, "{text}", text).Replace(translatePrompt)
}
